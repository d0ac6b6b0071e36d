package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyDbURL              = "dbURL"
	KeyCacheKey           = "cacheKey"
	KeyCacheTags          = "cacheTags"
	KeyAuthToken          = "authToken"
	KeyToken              = "token"
	KeyUserID             = "userId"
	KeyRequest            = "request"
	KeyRequestHeader      = "requestHeader"
	KeyRequestBody        = "requestBody"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyPathValues         = "pathValues"

	KeyEventID        = "eventId"
	KeyEventType      = "eventType"
	KeyEventSource    = "eventSource"
	KeyTransition     = "transition"
	KeyDocumentID     = "documentId"
	KeyDocumentType   = "documentType"
	KeyProductID      = "productId"
	KeyPaymentsID     = "paymentsId"
	KeyPriceID        = "priceId"
	KeyImageURL       = "imageUrl"
	KeyAttempt        = "attempt"
	KeyDelay          = "delay"
	KeyProcessingTime = "processingTime"

	KeyCart          = "cart"
	KeyCartID        = "cartId"
	KeyCartItemKey   = "cartItemKey"
	KeyQuantity      = "quantity"
	KeyLineItems     = "lineItems"
	KeyCheckoutURL   = "checkoutUrl"
	KeySessionID     = "sessionId"
	KeyProduct       = "product"
	KeyProducts      = "products"
	KeySlug          = "slug"
	KeyPrice         = "price"
	KeySkippedReason = "skippedReason"
)
