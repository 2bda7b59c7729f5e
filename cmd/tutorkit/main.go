// Command tutorkit runs the voice tutor workspace and its supporting tools.
package main

func main() {
	Execute()
}
