// Package event defines the WebSocket wire message format pushed by the
// task-queue backend.
//
// Every frame is a JSON envelope {type, data, timestamp}. The type tag is a
// closed enumeration of task, worker, queue, and metrics lifecycle events;
// unrecognized tags are carried through untouched so new server-side event
// types degrade gracefully.
package event
