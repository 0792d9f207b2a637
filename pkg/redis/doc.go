// Package redis connects resumekit services to Redis, which the
// entitlement core uses as a short-TTL read cache for the lifetime offer.
// Connection setup retries until the server is reachable so service and
// cache can start in any order.
package redis
