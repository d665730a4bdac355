/*
Package security groups the access-control packages of the onboarding API.

# Bearer Authentication

The auth package issues and validates HS256 tokens signed with the configured
secret key:

	tokens, err := auth.NewTokenManager(cfg.Security.SecretKey, cfg.Security.Auth)
	if err != nil {
		return err
	}

	token, err := tokens.Issue("reviewer@example.com")

	handler = auth.NewMiddleware(tokens, auth.DefaultPublicPaths).Handle(handler)

Health, version and metrics endpoints stay public so probes and scrapers work
without credentials.
*/
package security
