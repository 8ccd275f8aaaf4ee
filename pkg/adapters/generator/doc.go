// Package generator provides site generators: Local, which derives artifact
// descriptors and hosting URLs on its own, and HTTP, which delegates to a
// render server.
package generator
