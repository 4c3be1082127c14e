/*
Package ports defines the driven ports (interfaces) of the interaction core.

These interfaces decouple the core from the subsystems it collaborates with but does not own:
object identity, dependency injection, result routing and snapshot persistence.

# Key Interfaces

  - ObjectManager: adapts pojos to managed objects and round-trips them through bookmarks.
  - ServiceInjector: injects collaborators into objects returned by actions.
  - RoutingService: substitutes a different object for an action result.
  - SnapshotStore: persists pending-params snapshots between requests.
  - DistributedLocker: coordinates access to one dialog across replicas.
*/
package ports
