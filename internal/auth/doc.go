// Package auth implements the shared-secret credential check for the Camera Cloud Server.
//
// A single static API key is compared in constant time against the credential
// presented in the X-API-Key header or the api_key query parameter. There are
// no per-device keys and no rotation; callers decide what a failed check means
// (the upload path rejects, the stream path demotes the connection to viewer).
package auth
