// Package health implements the liveness and dependency check endpoints.
//
// /health answers as long as the process runs. /api/v1/healthz runs every
// registered check (the request store ping, in practice) and answers 503 if
// any of them fails:
//
//	{
//	    "ok": false,
//	    "status": "unhealthy",
//	    "service": "getgsa-api",
//	    "checks": {"database": {"status": "unhealthy", "message": "connection refused"}}
//	}
package health
