/*
Package auth provides JWT bearer authentication for the onboarding API.

Tokens are HS256-signed with the service secret and carry the caller in the
standard subject claim. The issuer is checked on every request and tokens
expire after the configured TTL.

# Issuing Tokens

	tm, err := auth.NewTokenManager(cfg.Security.SecretKey, cfg.Security.Auth)
	if err != nil {
	    return err
	}
	token, err := tm.Issue("analyst@agency.gov")

# Protecting Routes

	handler = auth.NewMiddleware(tm, nil).Handle(handler)

Inside a handler the authenticated caller is available from the context:

	claims, ok := auth.ClaimsFromContext(r.Context())

Health, metrics and version endpoints are public by default. A nil token
manager rejects every protected request.
*/
package auth
