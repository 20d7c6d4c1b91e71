/*
Package batch runs the external tool over every discovered file.

	+------------+      +----------+      +------------+
	| discover   | ---> |  Plan    | ---> |  Runner    |
	| (paths)    |      |  (jobs)  |      | (pool)     |
	+------------+      +----------+      +-----+------+
	                                            |
	                                    +-------+-------+
	                                    |  JobExecutor  |
	                                    |  (subprocess) |
	                                    +-------+-------+
	                                            |
	                                        outcomes ---> Notify + []Outcome

🎯 Purpose:
  - Run each job exactly once
  - Report each outcome as soon as it is known
  - Return every outcome once all jobs are done

🔄 Modes:
 1. Sequential: one job at a time, outcomes in discovery order
 2. Parallel: a pool of floor(1.5 x CPUs) workers, outcomes in completion order

⚡ Guarantees:
  - At most Workers jobs execute at any instant
  - Outcomes are collected by a single goroutine, so Notify never runs concurrently
  - Run returns only after every submitted job finished
  - A failing tool never stops sibling jobs; only a tool that cannot be
    started (or a discovery error) ends the run early

🔍 Example:

	paths, err := discover.Discover(ctx, root, discover.DefaultPattern)
	if err != nil {
		return err
	}
	runner := batch.New(executor.New(executor.Options{}), batch.Options{Parallel: true})
	outcomes, err := runner.Run(ctx, batch.Plan(paths, job.Verify{}, tool, 0), func(o job.Outcome) {
		fmt.Println(o.Text())
	})
*/
package batch
