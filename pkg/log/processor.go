package log

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mwantia/fabric/pkg/container"
)

const loggerTag = "logger"

// LoggerTagProcessor injects loggers into struct fields tagged with
// `fabric:"logger"` (the registered LoggerService) or
// `fabric:"logger:<name>"` (a child created with Named(name)).
//
// Fabric only builds a struct through its tag factory when at least one
// field carries `fabric:"inject"`, so services using this tag need one.
type LoggerTagProcessor struct{}

func NewLoggerTagProcessor() *LoggerTagProcessor {
	return &LoggerTagProcessor{}
}

// GetPriority places the processor ahead of the inject processor (priority 0).
func (p *LoggerTagProcessor) GetPriority() int {
	return 50
}

func (p *LoggerTagProcessor) CanProcess(value string) bool {
	name, _, _ := strings.Cut(value, ":")
	return strings.EqualFold(strings.TrimSpace(name), loggerTag)
}

func (p *LoggerTagProcessor) Process(ctx context.Context, sc *container.ServiceContainer, field reflect.StructField, value string) (any, error) {
	if !reflect.TypeOf((*LoggerService)(nil)).Elem().AssignableTo(field.Type) {
		return nil, fmt.Errorf("field '%s' of type %s cannot hold a LoggerService", field.Name, field.Type)
	}

	ok, resolved := sc.ResolveByType(ctx, reflect.TypeOf((*LoggerService)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("no LoggerService registered for field '%s'", field.Name)
	}
	base, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("registered logger for field '%s' is %T", field.Name, resolved)
	}

	_, name, _ := strings.Cut(value, ":")
	if name = strings.TrimSpace(name); name != "" {
		return base.Named(name), nil
	}
	return base, nil
}
