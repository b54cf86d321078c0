// Command edgerouter is a config-driven HTTP edge router: it matches
// requests against host/path/header/query/cookie rules and rewrites,
// redirects, responds to, or forwards them.
package main

func main() {
	Execute()
}
