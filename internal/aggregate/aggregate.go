// Package aggregate reshapes task records into rows and counts them by
// department and by completion status.
package aggregate

import "github.com/dsrs-analytics/taskdash/internal/asana"

// Status labels.
const (
	StatusComplete   = "Complete"
	StatusIncomplete = "Incomplete"
)

// DefaultDepartment is used when a task carries no department value.
const DefaultDepartment = "Other"

// Department is one fixed department slice.
type Department struct {
	// Raw is the value as it appears in the custom field.
	Raw string
	// Display is the chart label.
	Display string
}

// Departments lists the charted departments in display order.
var Departments = []Department{
	{Raw: "ACCY", Display: "ACCY"},
	{Raw: "BA", Display: "BA"},
	{Raw: "FIN", Display: "FIN"},
	{Raw: "DSRS", Display: "DSRS"},
	{Raw: "EXTERNAL", Display: "External"},
	{Raw: DefaultDepartment, Display: DefaultDepartment},
}

// Row is one normalized task.
type Row struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Department string `json:"department"`
}

// Table holds one row per task record, in input order.
type Table []Row

// Count is one (label, value) pair of a summary.
type Count struct {
	Label string `json:"name"`
	Value int    `json:"value"`
}

// Result is the output of Summarize.
type Result struct {
	Departments []Count `json:"departments"`
	Statuses    []Count `json:"statuses"`
	Total       int     `json:"total"`
	// Unclassified counts rows whose department is none of Departments.
	// They are left out of the department summary.
	Unclassified int `json:"unclassified"`
}

// FirstDisplayValue returns the display value of the task's first custom
// field, or fallback when there are no custom fields or the value is
// missing or empty.
func FirstDisplayValue(task asana.Task, fallback string) string {
	if len(task.CustomFields) == 0 {
		return fallback
	}
	v := task.CustomFields[0].DisplayValue
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

// Normalize converts task records into rows.
func Normalize(tasks []asana.Task) Table {
	table := make(Table, 0, len(tasks))
	for _, task := range tasks {
		status := StatusIncomplete
		if task.Completed {
			status = StatusComplete
		}
		table = append(table, Row{
			ID:         task.GID,
			Name:       task.Name,
			Status:     status,
			Department: FirstDisplayValue(task, DefaultDepartment),
		})
	}
	return table
}

// Summarize counts rows by department and by status.
// An empty table yields empty summaries. Otherwise the department summary
// always has one entry per Departments element, zero counts included, and
// statuses appear in first-seen order. Labels match exactly.
func Summarize(table Table) Result {
	result := Result{
		Departments: []Count{},
		Statuses:    []Count{},
		Total:       len(table),
	}
	if len(table) == 0 {
		return result
	}

	byDept := make(map[string]int, len(Departments))
	statusIdx := make(map[string]int)
	for _, row := range table {
		byDept[row.Department]++

		if i, ok := statusIdx[row.Status]; ok {
			result.Statuses[i].Value++
			continue
		}
		statusIdx[row.Status] = len(result.Statuses)
		result.Statuses = append(result.Statuses, Count{Label: row.Status, Value: 1})
	}

	classified := 0
	for _, d := range Departments {
		n := byDept[d.Raw]
		classified += n
		result.Departments = append(result.Departments, Count{Label: d.Display, Value: n})
	}
	result.Unclassified = len(table) - classified

	return result
}

// UnclassifiedDepartments returns the distinct department values outside
// Departments, in first-seen order.
func UnclassifiedDepartments(table Table) []string {
	known := make(map[string]bool, len(Departments))
	for _, d := range Departments {
		known[d.Raw] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range table {
		if known[row.Department] || seen[row.Department] {
			continue
		}
		seen[row.Department] = true
		out = append(out, row.Department)
	}
	return out
}
