// Package asana provides a read-only client for the Asana REST API.
// It lists the tasks of one project with the fields the dashboard charts.
package asana

// Task is an Asana task restricted to OptFields.
type Task struct {
	GID          string        `json:"gid"`
	Name         string        `json:"name"`
	Completed    bool          `json:"completed"`
	Assignee     *User         `json:"assignee"`
	CustomFields []CustomField `json:"custom_fields"`
	Projects     []Project     `json:"projects"`
}

// CustomField is one custom field value attached to a task.
type CustomField struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
	// Type is the Asana field type (e.g., "enum", "text", "number").
	Type string `json:"type"`
	// DisplayValue is nil when the API sends null or omits the field.
	DisplayValue *string `json:"display_value"`
}

// User is a task assignee.
type User struct {
	GID  string `json:"gid"`
	Name string `json:"name,omitempty"`
}

// Project is a project a task belongs to.
type Project struct {
	GID  string `json:"gid"`
	Name string `json:"name,omitempty"`
}

// OptFields are the task fields requested from the API.
// Keeping this explicit avoids fetching unnecessary data.
var OptFields = []string{
	"completed",
	"name",
	"custom_fields",
	"assignee",
	"projects",
}
