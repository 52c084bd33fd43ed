/*
Package tendril is an event-driven node-graph VM for reactive game and automation logic.

Graphs are declared as data: node instances whose types come from a Registry, typed
connections between their slots, and named entry points. A Manager validates graphs
once at install time and then evaluates them per event.

# Concept

Evaluation is hybrid. An event fires an entry node, which pushes evaluation downstream
to every node it feeds; inputs those nodes need are pulled lazily from upstream. Every
node runs at most once per event, so effectful nodes (printing, writing to the host)
fire exactly once. Pure nodes never touch the host. Stateful nodes carry state across
events.

Events are queued and drained in FIFO order by ProcessEvents. Events enqueued by nodes
during a drain are deferred to the next drain, and a failing event never prevents the
following ones from running.

# Usage

	reg := nodes.NewRegistry()
	host := memory.NewHost()
	m := tendril.New(reg, tendril.WithHost(host))

	spec, _ := dsl.New("hello").
		Node("two", "const").Param("value", 2).
		Node("three", "const").Param("value", 3).
		Node("add", "math.add").
		Node("print", "print").
		Connect("two.out", "add.a").
		Connect("three.out", "add.b").
		Connect("add.sum", "print.value").
		Entry("start", "two").
		Build()

	if err := m.Load(ctx, spec); err != nil {
		log.Fatal(err)
	}
	m.Enqueue("start", nil)
	for _, outcome := range m.ProcessEvents(ctx) {
		fmt.Println(outcome.Status)
	}
	fmt.Println(host.Emitted("print")) // [5]
*/
package tendril
