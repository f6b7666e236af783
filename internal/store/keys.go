package store

import "fmt"

// Key namespaces, per spec.md 4.1.

func taskKey(id string) string {
	return fmt.Sprintf("task:%s", id)
}

func scenarioKey(id string) string {
	return fmt.Sprintf("scenario:%s", id)
}

func scenarioTasksKey(id string) string {
	return fmt.Sprintf("scenario:%s:tasks", id)
}

func queueKey(service string) string {
	return fmt.Sprintf("queue:%s", service)
}
