/*
Package backend implements the generic REST backend

A backend serves the resources of a registry. Every resource is a collection of JSON
documents behind a model, see package model, and gets the same seven routes below
/api/<lower case name>s. For a resource "User":

	POST   /api/users
	GET    /api/users
	GET    /api/users/{id}
	PUT    /api/users/{id}
	PATCH  /api/users/{id}
	DELETE /api/users/{id}
	DELETE /api/users/{id}/permanent

POST creates a document, the identifier is assigned by the store. PUT and PATCH both
merge the supplied fields into the document. DELETE only marks the document inactive
(isActive=false), it can be repeated. DELETE .../permanent removes the document and
returns it one last time. Paths may end with a slash. RouteSet.Disable removes
single operations of a resource.

Every response is a JSON envelope, see package response:

	{"status":"success","message":"Resource retrieved successfully","data":{...}}
	{"status":"error","message":"Validation Error","errors":["name is required"]}

Listing

GET on the collection returns one page of documents and the pagination meta data:

	GET /api/users?page=2&limit=10&filter={"role":"admin"}&sort={"name":1}&isActive=true

	{
	  "status": "success",
	  "message": "Resources retrieved successfully",
	  "data": [...],
	  "meta": {"page": 2, "limit": 10, "total": 25, "pages": 3}
	}

page and limit default to 1 and 10. The filter supports plain values and the operators
$eq, $ne, $gt, $gte, $lt, $lte, $in, $nin and $exists. Without a sort parameter the
newest documents come first. The isActive parameter overrides isActive of the filter.

Validation

Create and update requests can be checked against JSON schemas before they reach the
model, see package schema. Requests which fail are answered with 400 and the list of
field errors.

Errors

Handlers return errors instead of writing them. HandleError maps them to the
envelope: validation, cast and duplicate key errors are 400, errors with an explicit
status keep it, everything else is a 500 with the stack trace outside of production.

Custom routes

The route set of a resource can be extended before it is registered:

	routes := backend.BuildRoutes(users, validator.Set("User"))
	routes.Get("/custom", backend.ActiveSample(users, 5))

Static paths are always matched before {id}.

Other routes

	GET /api     version and the paths of all resources
	GET /health  liveness
*/
package backend
