package model

import "time"

// 在庫更新、注文ステータス更新など。
type AuditAction string

const (
	//在庫を更新した操作。
	AuditActionUpdateStock AuditAction = "UPDATE_STOCK"
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"

	AuditActionCreateProduct AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct AuditAction = "UPDATE_PRODUCT"
	AuditActionToggleProduct AuditAction = "TOGGLE_PRODUCT"
	AuditActionDeleteProduct AuditAction = "DELETE_PRODUCT"

	AuditActionCreateCategory AuditAction = "CREATE_CATEGORY"
	AuditActionUpdateCategory AuditAction = "UPDATE_CATEGORY"
	AuditActionDeleteCategory AuditAction = "DELETE_CATEGORY"

	AuditActionForceLogout AuditAction = "FORCE_LOGOUT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceVariant  AuditResourceType = "variant"
	AuditResourceCategory AuditResourceType = "category"
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourceUser     AuditResourceType = "user"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
