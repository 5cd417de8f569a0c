package progress

import (
	"context"
	"fmt"
	"time"
)

// ExampleHub_Notify demonstrates sharing one sink between tasks via a Hub.
func ExampleHub_Notify() {
	var lines []string
	capture := SinkFunc(func(text string, final bool) error {
		lines = append(lines, fmt.Sprintf("%s final=%t", text, final))
		return nil
	})
	hub := NewHub(Config{
		BufferSize:     4,
		MaxBatchEvents: 1,
		MaxBatchWait:   time.Second,
	}, capture)

	_ = hub.Notify("Task # 0: load 0/9", false)
	_ = hub.Notify("Task # 0: load 9/9", true)
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	for _, line := range lines {
		fmt.Println(line)
	}
	// Output:
	// Task # 0: load 0/9 final=false
	// Task # 0: load 9/9 final=true
}

// ExampleTask shows the task state machine.
func ExampleTask() {
	task := NewTask("resize", 2)
	task.Start()
	task.Update(1)
	fmt.Println(task.State(), task.Progress())
	task.Update(2)
	task.Close(true)
	fmt.Println(task.State(), task.IsCompleted())
	// Output:
	// RUNNING 1
	// DONE true
}
