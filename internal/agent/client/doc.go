// Package client provides the streaming session protocol shared by all
// headless agent CLIs.
//
// A headless agent CLI is an executable that, given a prompt, writes
// newline-delimited JSON events to stdout and exits. This package defines
// the provider-agnostic pieces of that protocol:
//
//   - AgentClient: factory for spawning headless processes
//   - Process: unified process lifecycle management
//   - OutputEvent: normalized event stream from processes
//   - EventDecoder: per-vocabulary line decoding strategy
//   - Aggregator: single-pass statistics and callback dispatch
//   - Config: provider-agnostic spawn configuration
//
// Each supported CLI vocabulary lives in its own subpackage under providers/
// and registers itself via init(). Example usage:
//
//	c, err := client.New(client.ClientClaude)
//	if err != nil {
//	    return err
//	}
//	proc, err := c.Spawn(ctx, client.Config{Prompt: "Hello", SessionID: id})
//	if err != nil {
//	    return err
//	}
//	agg := client.NewAggregator(client.Callbacks{})
//	for event := range proc.Events() {
//	    agg.Observe(event)
//	}
package client
