// Package live serves a store.Store over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /v1/keys            list present keys
//	GET    /v1/keys/{key...}   read one entry
//	PUT    /v1/keys/{key...}   set from a JSON body (?init=1 initializes instead)
//	DELETE /v1/keys/{key...}   delete
//	GET    /v1/watch/{key...}  WebSocket stream of entries
//
// Path segments after /keys/ or /watch/ are joined with the store delimiter,
// so /v1/keys/user/name and /v1/keys/user.name address the same key.
//
// Each watch connection holds one store observer for its lifetime. An
// optional default query parameter, itself JSON, is written with Initialize
// when the key has no value yet, so opening a watch never notifies other
// watchers.
package live
