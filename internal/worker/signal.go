package worker

import "syscall"

// terminateSignal is the signal the stop protocol and per-item
// cancellation send a running child before falling back to SIGKILL.
const terminateSignal = syscall.SIGTERM
