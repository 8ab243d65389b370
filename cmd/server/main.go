// Command server runs the go-collect debt-collection API.
package main

func main() {
	Execute()
}
