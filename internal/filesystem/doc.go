/*
Package filesystem wraps os.Stat, os.Open and os.ReadDir with retries for
NFS stale file handle errors (ESTALE).

Photo libraries are often mounted over NFS. A handle can go stale when the
server side changes under a long-running process; the call usually succeeds
if simply repeated. Only ESTALE is retried, with exponential backoff
(3 retries, 50ms doubling up to 500ms by default). Every other error is
returned immediately.

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())

Metrics are recorded through an Observer installed with SetObserver, labelled
by the volume a VolumeResolver maps the path to.
*/
package filesystem
