package saleor

// AppIdentityQuery asks the instance which app the bearer token belongs to.
// Only a token issued to an installed app can answer it.
const AppIdentityQuery = `query AppIdentity { app { id } }`

// JWKSPath is where a Saleor instance publishes its signing keys.
const JWKSPath = "/.well-known/jwks.json"
