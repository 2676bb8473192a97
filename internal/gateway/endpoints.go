package gateway

// REST surface exposed by the storefront backend. Order routes live under the
// backend's original French resource name ("commandes").
const (
	pathLogin         = "/api/auth/login"
	pathLogout        = "/api/auth/logout"
	pathClientCreate  = "/api/clients/create"
	pathClientMe      = "/api/clients/me"
	pathProductsAll   = "/api/products/all"
	pathProductByID   = "/api/products/%s"
	pathOrderCreate   = "/api/commandes/create"
	pathOrderCancel   = "/api/commandes/%s/cancel"
	pathPaymentCreate = "/api/payments/process"
	pathPromoAll      = "/api/code-promo/all"
)

// Operation labels used for logging and metrics.
const (
	opLogin          = "login"
	opLogout         = "logout"
	opCreateAccount  = "create_account"
	opCurrentProfile = "current_profile"
	opListProducts   = "list_products"
	opGetProduct     = "get_product"
	opCreateOrder    = "create_order"
	opCancelOrder    = "cancel_order"
	opSubmitPayment  = "submit_payment"
	opConfirmPayment = "confirm_payment"
	opListPromos     = "list_promos"
)

// tokenFields are the accepted spellings for the bearer token in the login
// response, checked in this exact order.
var tokenFields = []string{"token", "accessToken", "jwt"}
