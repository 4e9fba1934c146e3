// Package threads lets guest bytecode spawn, fork, join, detach, and
// exit native threads.
//
// Each guest-spawned thread is tracked by a reference-counted control
// object that owns the thread's execution context, entry function, and
// argument, keeping them reachable by the collector for as long as the
// thread is alive. The owners of a control object at any moment are
// exactly: the registry slot (while registered), the thread currently
// running as that object, and short-lived call-scoped holders inside
// create/join/detach. Every acquisition is paired with exactly one
// release on every exit path, and the object's owned state is dropped
// precisely when the count reaches zero.
package threads
