/*
Package workers sizes worker pools from the CPUs actually available to the
process.

In a container with a CPU limit, runtime.NumCPU reports the host's cores
while GOMAXPROCS follows the cgroup quota. The helpers scale GOMAXPROCS by a
workload multiplier:

	workers.ForCPU(8)    // 1 per CPU, max 8
	workers.ForIO(16)    // 2 per CPU, max 16
	workers.ForMixed(16) // 1.5 per CPU, max 16

The thumbnail cache uses ForMixed for its decode semaphore and the indexer
uses ForIO for its directory walk.

Operators can pin the count with DECODE_WORKERS:

	env:
	- name: DECODE_WORKERS
	  value: "4"

Invalid or non-positive values are ignored.
*/
package workers
