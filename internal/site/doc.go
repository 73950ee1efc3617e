// Package site loads a CUE site definition and turns it into a page
// registry.
//
// A site directory holds one CUE package plus the document sources it
// names:
//
//	package site
//
//	layout: width: 60
//	pages: home: {
//		main:  "home.fol"
//		files: ["chapters/one.fol"]
//		data:  "home.data"
//	}
//	fallback: main: "error.fol"
//
// The definition is unified with the embedded #Site schema, which supplies
// defaults and rejects unknown fields.
package site
