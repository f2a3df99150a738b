package broker

import (
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/task"
)

// Topic placeholders.
const (
	PlaceholderValueName   = "%valname%"
	PlaceholderSystemName  = "%sysname%"
	PlaceholderTaskName    = "%tskname%"
	PlaceholderTaskID      = "%tskid%"
	PlaceholderUnit        = "%unit%"
	PlaceholderValueUnit   = "%valunit%"
	PlaceholderDeviceClass = "%devclass%"
)

// TemplateRegistry is the registry surface used by Templater.
type TemplateRegistry interface {
	TaskName(idx task.Index) string
	ValueName(idx task.Index, v int) string
	ValueUnit(idx task.Index, v int) string
}

// Templater is the default Substituter.
type Templater struct {
	registry   TemplateRegistry
	systemName string
	unit       int
}

// NewTemplater creates a Templater for a node.
func NewTemplater(registry TemplateRegistry, systemName string, unit int) *Templater {
	return &Templater{registry: registry, systemName: systemName, unit: unit}
}

// HasPlaceholder implements Substituter.
func (t *Templater) HasPlaceholder(template, placeholder string) bool {
	return strings.Contains(template, placeholder)
}

// SubstituteValue implements Substituter.
func (t *Templater) SubstituteValue(template string, r *Reading, v int) string {
	return strings.NewReplacer(
		PlaceholderValueName, t.registry.ValueName(r.Task, v),
		PlaceholderValueUnit, t.registry.ValueUnit(r.Task, v),
	).Replace(template)
}

// Substitute implements Substituter.
func (t *Templater) Substitute(template string, r *Reading) string {
	return t.SubstituteNode(template, r.Task)
}

// SubstituteNode expands node and task placeholders for task idx.
func (t *Templater) SubstituteNode(template string, idx task.Index) string {
	pairs := []string{
		PlaceholderSystemName, t.systemName,
		PlaceholderUnit, strconv.Itoa(t.unit),
	}
	if idx.Valid() {
		pairs = append(pairs,
			PlaceholderTaskName, t.registry.TaskName(idx),
			PlaceholderTaskID, strconv.Itoa(int(idx)+1),
		)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// SubstituteDeviceClass expands %devclass%.
func SubstituteDeviceClass(template, class string) string {
	return strings.ReplaceAll(template, PlaceholderDeviceClass, class)
}
