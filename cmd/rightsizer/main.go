// Rightsizer - cloud cost optimization recommendation engine.
// Analyze. Recommend. Save.
package main

func main() {
	Execute()
}
