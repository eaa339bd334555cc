// Package autoload applies externally-authored city-generation profiles to a
// world-generator system that lives in the same Dragonfly process but is not
// compiled against, and places joining players into a configured dimension.
//
// The target system exposes no API for profile injection. autoload reaches its
// state through a Bridge that reads and writes named struct members by
// reflection, waits until the target's profile registry is populated, and then
// writes the profile name and an optional settings blob into it.
//
// # Quick Start
//
//	systems := autoload.NewSystems()
//	systems.Register(autoload.Static("lostcities", generator))
//
//	store := autoload.NewStore()
//	_ = store.Load("config/lostcitiesautoloader.toml")
//
//	eng, spawner := autoload.NewBuilder().
//	    Systems(systems).
//	    Settings(store).
//	    Init()
//
//	eng.Trigger(autoload.PreStart)
//	// ... create the server ...
//	eng.Trigger(autoload.Starting)
//	// ... after each world is created ...
//	eng.Trigger(autoload.LevelLoad)
//
//	spawner.UseWorlds(autoload.WorldsFromServer(srv))
//	for p := range srv.Accept() {
//	    spawner.HandleJoin(p)
//	}
//
// # Convergence
//
// SyncOnce is meant to be called many times. Each call re-checks readiness and
// either applies the configured profile in full or does nothing. Calling it
// again after a successful apply writes the same values again.
package autoload

// Version is the autoload version.
const Version = "1.0.0"
