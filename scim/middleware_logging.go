package scim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/authn"
	"github.com/scimdb/scimdb/storage"
)

// LoggingService logs every resource operation with its duration and
// outcome. Secrets and attribute values never appear in the log lines.
type LoggingService struct {
	logger          *zap.Logger
	resourceService ResourceService
}

// NewLoggingService returns a logging middleware for a ResourceService.
func NewLoggingService(log *zap.Logger, s ResourceService) *LoggingService {
	return &LoggingService{
		logger:          log,
		resourceService: s,
	}
}

var _ ResourceService = (*LoggingService)(nil)

func (l *LoggingService) CreateResource(ctx context.Context, rc *authn.RequestContext, typ string, attributes map[string]interface{}) (r *scimdb.Resource, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to create resource", zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource create", dur)
	}(time.Now())
	return l.resourceService.CreateResource(ctx, rc, typ, attributes)
}

func (l *LoggingService) FindResourceByID(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) (r *scimdb.Resource, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to find resource with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource find by ID", dur)
	}(time.Now())
	return l.resourceService.FindResourceByID(ctx, rc, typ, id)
}

func (l *LoggingService) ListResources(ctx context.Context, rc *authn.RequestContext, typ string, opts scimdb.FindOptions) (rs []*scimdb.Resource, n int, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to list resources", zap.Error(err), dur)
			return
		}
		l.logger.Debug("resources list", dur)
	}(time.Now())
	return l.resourceService.ListResources(ctx, rc, typ, opts)
}

func (l *LoggingService) FindResourcesByAttribute(ctx context.Context, rc *authn.RequestContext, typ, attr, value string) (rs []*scimdb.Resource, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to find resources by attribute %q", attr)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("resources find by attribute", dur)
	}(time.Now())
	return l.resourceService.FindResourcesByAttribute(ctx, rc, typ, attr, value)
}

func (l *LoggingService) UpdateResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, attributes map[string]interface{}) (r *scimdb.Resource, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to update resource", zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource update", dur)
	}(time.Now())
	return l.resourceService.UpdateResource(ctx, rc, typ, id, attributes)
}

func (l *LoggingService) UpdateResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, attributes map[string]interface{}) (r *scimdb.Resource, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to conditionally update resource", zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource conditional update", dur)
	}(time.Now())
	return l.resourceService.UpdateResourceConditional(ctx, rc, typ, id, expected, attributes)
}

func (l *LoggingService) PatchResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, partial map[string]interface{}) (r *scimdb.Resource, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to patch resource", zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource patch", dur)
	}(time.Now())
	return l.resourceService.PatchResource(ctx, rc, typ, id, partial)
}

func (l *LoggingService) PatchResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, partial map[string]interface{}) (r *scimdb.Resource, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to conditionally patch resource", zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource conditional patch", dur)
	}(time.Now())
	return l.resourceService.PatchResourceConditional(ctx, rc, typ, id, expected, partial)
}

func (l *LoggingService) DeleteResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) (err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to delete resource with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource delete", dur)
	}(time.Now())
	return l.resourceService.DeleteResource(ctx, rc, typ, id)
}

func (l *LoggingService) DeleteResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken) (err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to conditionally delete resource with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource conditional delete", dur)
	}(time.Now())
	return l.resourceService.DeleteResourceConditional(ctx, rc, typ, id, expected)
}

func (l *LoggingService) CountResources(ctx context.Context, rc *authn.RequestContext, typ string) (n int, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to count resources", zap.Error(err), dur)
			return
		}
		l.logger.Debug("resources count", dur)
	}(time.Now())
	return l.resourceService.CountResources(ctx, rc, typ)
}

func (l *LoggingService) ResourceChangeLog(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, opts scimdb.FindOptions) (entries []storage.ChangeEntry, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to read change log for resource with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("resource change log", dur)
	}(time.Now())
	return l.resourceService.ResourceChangeLog(ctx, rc, typ, id, opts)
}
