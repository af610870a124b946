package router

import (
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIPrefix is where every resource of the billing API is mounted.
const APIPrefix = "/api/v1"

// Route is one entry in a resource's route table.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Resource groups the routes served under a single path segment, such as
// /plans or /installments. Guards run before every route of the resource.
type Resource struct {
	Name   string
	Prefix string
	Guards []gin.HandlerFunc
	Routes []Route
}

func get(p string, h gin.HandlerFunc) Route    { return Route{http.MethodGet, p, h} }
func post(p string, h gin.HandlerFunc) Route   { return Route{http.MethodPost, p, h} }
func put(p string, h gin.HandlerFunc) Route    { return Route{http.MethodPut, p, h} }
func patch(p string, h gin.HandlerFunc) Route  { return Route{http.MethodPatch, p, h} }
func remove(p string, h gin.HandlerFunc) Route { return Route{http.MethodDelete, p, h} }

// Mount registers every resource below base.
func Mount(base *gin.RouterGroup, resources ...Resource) {
	for _, res := range resources {
		group := base.Group(res.Prefix, res.Guards...)
		for _, route := range res.Routes {
			group.Handle(route.Method, route.Path, route.Handler)
		}
	}
}

// RouteTable lists "METHOD /full/path" for each route of the resources,
// ordered by path and then method.
func RouteTable(base string, resources ...Resource) []string {
	var table []string
	for _, res := range resources {
		for _, route := range res.Routes {
			table = append(table, route.Method+" "+path.Join(base, res.Prefix, route.Path))
		}
	}
	sort.Slice(table, func(i, j int) bool {
		mi, pi, _ := strings.Cut(table[i], " ")
		mj, pj, _ := strings.Cut(table[j], " ")
		if pi != pj {
			return pi < pj
		}
		return mi < mj
	})
	return table
}
