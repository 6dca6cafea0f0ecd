package handler

const (
	errInternalServer = "Internal server error"
	errInvalidBody    = "Invalid request body."

	errMissingRegistration = "Missing username, email, or password"
	errMissingLogin        = "Missing email or password"
	errUsernameTaken       = "Username already taken"
	errEmailTaken          = "Email already registered"
	errBadCredentials      = "Invalid credentials"
	errInvalidToken        = "Invalid token"

	errProductNotFound   = "Product not found"
	errProductIDQuantity = "Invalid product ID or quantity."
	errProductMissing    = "Product not found."
	errInvalidQuantity   = "Invalid quantity provided. Must be a non-negative integer."
	errCartItemNotFound  = "Cart item not found or does not belong to your cart."
	errCheckoutEmpty     = "Your cart is empty. Nothing to checkout."
)
