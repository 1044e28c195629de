// Package auth provides authentication and authorization for the service.
//
// Two independent schemes share one credential store:
//   - session: a server-side session referenced by an HTTP-only cookie, with
//     CSRF tickets required on every mutating request
//   - bearer: a short-lived HS256 token presented in the Authorization header
//
// Session login is subject to the lockout policy: after MaxLoginAttempts
// consecutive failures an account is locked for LockoutDuration. Bearer
// login skips the policy unless AUTH_TOKEN_LOGIN_LOCKOUT is set.
//
// # Configuration
//
//	AUTH_SESSION_STORE=sqlite        # or "memory"
//	AUTH_SESSION_SECRET=<random>     # CSRF signing key, generated if empty
//	AUTH_JWT_SECRET=<random>         # token signing key, generated if empty
//	AUTH_JWT_EXPIRES=900s            # token lifetime
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true         # HTTPS-only cookies
//
// # Usage
//
//	svc := auth.NewService(userRepo, securityLog, cfg.Auth)
//	sessions := auth.NewSessionManager(store, cfg.Auth)
//	mw := auth.NewMiddleware(sessions, tokens, securityLog)
//	group.Use(sessions.SessionLoadSave(), mw.SessionAuth())
//
// Extract the principal in handlers:
//
//	p := auth.GetPrincipal(c) // nil when unauthenticated
package auth
