/*
Package workers sizes and runs the background worker pools.

Count, ForCPU and ForIO derive a worker count from GOMAXPROCS,
which Go sets from the container CPU limit, and honour the WORKERS
environment variable as an explicit override:

	compute := workers.NewPool("compute", workers.ForCPU(8), 64)
	io := workers.NewPool("io", workers.ForIO(16), 256)
	defer compute.Close()
	defer io.Close()

Pool executes jobs submitted from any goroutine. TrySubmit never blocks and
reports whether the job was accepted, which is what the interactive path
uses: recompute pipelines and the resource cache submit work and return
immediately. Submit waits for queue space and is used by callers that may
block, such as shutdown-time saves. Panics inside jobs are recovered, logged
and counted in video_shelf_worker_jobs_total.
*/
package workers
