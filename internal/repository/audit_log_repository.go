package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// nilの項目は絞り込まない
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	// 同じトランザクション内で書く（管理操作と一緒にロールバックされる）
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順。totalはLimit/Offset適用前の件数
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}
