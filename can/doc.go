// Package can provides the core CAN primitives used by the teach-pendant
// button stack.
//
// It includes:
//   - A classical CAN Frame type with validation and binary marshaling
//   - The Bus interface and an in-memory loopback bus for tests
//   - A Linux SocketCAN driver (linux-only) via raw syscalls
//   - Frame filters and a Mux for fanning received frames out to consumers
//   - A zerolog-backed bus decorator for frame-level tracing
package can
