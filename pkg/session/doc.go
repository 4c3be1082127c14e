/*
Package session parks and resumes pending parameter negotiations ("dialogs").

A dialog is an unsubmitted ParameterNegotiationModel identified by an opaque
dialog ID. Park snapshots it into a SnapshotStore; Resume loads the snapshot
and rebuilds the negotiation against the live object model. Access to one
dialog is serialized across goroutines, and across replicas when a
DistributedLocker is configured.
*/
package session
