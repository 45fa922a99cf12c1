// The [docstore] package is a typed, client-side access layer for a remote,
// schema-less document database.
//
// # Handles and identity
//
// A [Document] is the local, mutable front for one remote document. The
// process-wide identity cache guarantees at most one live handle per
// canonical path: fetching or constructing a handle for a path some caller
// already holds returns that same instance, never a second copy of the same
// logical document. The cache holds weak references only, so it never keeps
// a handle alive by itself.
//
// # Reading
//
// [Get] implements the three cache policies. Under [PolicyDefault] a call
// can emit twice on its result channel: once synchronously from the identity
// cache ([PhaseLocal]) and once from the store ([PhaseAuthoritative]). The
// local emission, when it happens, always precedes the authoritative one.
// [Listen] turns a realtime subscription into a stream of fresh handles.
//
// # Writing
//
// A [Batch] buffers Save, Update and Delete operations and commits them to
// the store as one atomic transaction. Identity-cache eviction for deleted
// documents happens strictly after the commit is acknowledged, so readers
// never observe a delete that has not happened remotely.
//
// # Record types
//
// Each record type declares a [github.com/docstore/docstore.go/pkg/codec.Descriptor]
// carrying its collection mapping, its field-name table and whether audit
// timestamps are injected on write.
//
// The remote store itself is abstracted behind
// [github.com/docstore/docstore.go/pkg/remote.Store]; the
// [github.com/docstore/docstore.go/pkg/remote/wsstore] package implements it
// over a websocket JSON-RPC connection.
package docstore
