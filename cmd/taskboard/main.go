// Command taskboard runs the task board API.
//
// @title        Taskboard API
// @version      1.0
// @description  Per-user kanban boards with realtime change notifications.
// @BasePath     /
package main

func main() {
	Execute()
}
