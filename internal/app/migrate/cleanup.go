package migrate

import (
	"context"
	"log/slog"

	"github.com/vmshift/vmshift/internal/domain/migration"
)

// CleanupList records target resources so a failed run can delete them in
// reverse creation order. Resources are registered before their create is
// issued: a create whose completion wait times out may still have produced
// the resource, and it must be swept too. Registration costs nothing on the
// happy path; the list is only walked on abort.
type CleanupList struct {
	refs []migration.ResourceRef
}

// NewCleanupList returns an empty cleanup list.
func NewCleanupList() *CleanupList {
	return &CleanupList{}
}

// Register appends a resource whose creation is about to be requested.
func (l *CleanupList) Register(ref migration.ResourceRef) {
	l.refs = append(l.refs, ref)
}

// Refs returns the registered resources in creation order.
func (l *CleanupList) Refs() []migration.ResourceRef {
	return l.refs
}

// Execute deletes registered resources in reverse creation order. Deletion
// errors are logged and skipped so one stuck resource does not strand the
// rest. Returns the number of failed deletions.
func (l *CleanupList) Execute(ctx context.Context, p migration.Provider, log *slog.Logger) int {
	failed := 0
	for i := len(l.refs) - 1; i >= 0; i-- {
		ref := l.refs[i]
		if err := p.Delete(ctx, ref); err != nil {
			log.Error("cleanup delete failed", "kind", ref.Kind, "name", ref.Name, "error", err)
			failed++
		}
	}
	return failed
}
