package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

type JobType string

// JobType constants - different types of worker jobs
const (
	JobTypeAcquire = JobType("acquire")
	JobTypeReport  = JobType("report")
	JobTypeDelete  = JobType("delete")
)

// Payload keys
const (
	PayloadURL          = "url"
	PayloadLocalName    = "local_name"
	PayloadBare         = "bare"
	PayloadBranches     = "branches"
	PayloadRepositories = "repositories"
	PayloadDays         = "days"
)

// Job represents a unit of work. Payload never carries credentials.
type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// ToJSON - Convert job to JSON string for Redis storage
func (j *Job) ToJSON() (string, error) {
	bytes, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// FromJSON - Parse JSON string back to Job
func FromJSON(data string) (*Job, error) {
	var job Job
	err := json.Unmarshal([]byte(data), &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// String returns the payload value under key, or "" when absent
func (j *Job) String(key string) string {
	s, _ := j.Payload[key].(string)
	return s
}

// Bool returns the payload value under key, or false when absent
func (j *Job) Bool(key string) bool {
	b, _ := j.Payload[key].(bool)
	return b
}

// Int returns the payload value under key. Numbers decoded from JSON arrive
// as float64.
func (j *Job) Int(key string) (int, error) {
	switch v := j.Payload[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("payload %s: unexpected type %T", key, v)
	}
}

// Strings returns the payload list under key
func (j *Job) Strings(key string) ([]string, error) {
	switch v := j.Payload[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("payload %s: unexpected element type %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("payload %s: unexpected type %T", key, v)
	}
}
