package scaffold

import (
	"bytes"
)

// RouteFile describes the route wiring of a resource. The generated file differs
// between the two forms only in Setup and CustomRoute, which are the anchors of
// the upgrade.
type RouteFile struct {
	Names Names
	// Dedicated routes are served by the generated controller of the resource,
	// otherwise by the generic controller.
	Dedicated bool
}

// Setup is the statement which creates the route set
func (rf RouteFile) Setup() string {
	if rf.Dedicated {
		return "controller := New" + rf.Names.Pascal + "Controller(m)\n\t" +
			"routes := backend.BindRoutes(controller.Handlers(), validation)"
	}
	return "routes := backend.BuildRoutes(m, validation)"
}

// CustomRoute is the statement which adds the example custom route
func (rf RouteFile) CustomRoute() string {
	if rf.Dedicated {
		return `routes.Get("/custom", controller.Custom)`
	}
	return `routes.Get("/custom", backend.ActiveSample(m, 5))`
}

// UpgradeRouteFile returns the wiring of rf through the dedicated controller
func UpgradeRouteFile(rf RouteFile) RouteFile {
	rf.Dedicated = true
	return rf
}

// ApplyUpgrade rewrites content, the route file of from, into the route file of to
// by replacing both anchors. The content is returned unchanged with status Unchanged
// if it already is in the form of to, and with status Skipped and a reason if
// either anchor of from is missing.
func ApplyUpgrade(content []byte, from, to RouteFile) ([]byte, Status, string) {
	oldSetup, oldCustom := []byte(from.Setup()), []byte(from.CustomRoute())
	newSetup, newCustom := []byte(to.Setup()), []byte(to.CustomRoute())

	if bytes.Contains(content, newSetup) {
		return content, Unchanged, ""
	}
	if !bytes.Contains(content, oldSetup) {
		return content, Skipped, "anchor not found: " + from.Setup()
	}
	if !bytes.Contains(content, oldCustom) {
		return content, Skipped, "anchor not found: " + from.CustomRoute()
	}
	updated := bytes.Replace(content, oldSetup, newSetup, 1)
	updated = bytes.Replace(updated, oldCustom, newCustom, 1)
	return updated, Updated, ""
}
