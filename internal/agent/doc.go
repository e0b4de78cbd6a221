// Package agent runs one conversational turn as a two-node graph.
//
// The agent node asks the model for the next message. ShouldContinue
// routes to the tools node when that message requests tools and to End
// otherwise. The tools node answers every pending call, in order, and
// hands control back to the agent node. The history is checkpointed per
// thread after every node.
package agent
