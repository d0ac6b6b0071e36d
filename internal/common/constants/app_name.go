package constants

const (
	AppSyncService    = "sync-service"
	AppCartService    = "cart-service"
	AppProductService = "product-service"
	AppMigration      = "migration"
	AppMainCommerce   = "commercesync"
	AudienceUser      = "audience-user"
	IssuerAuth        = "auth-service"
)
