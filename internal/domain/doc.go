// Package domain holds the entities of the task engine: tasks and their
// history, projects, invites, notifications and the ledger keys that keep
// deadline notifications unique per day. Status rules are expressed through
// the generic machine in the lifecycle subpackage.
package domain
