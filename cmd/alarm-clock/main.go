// Command alarm-clock manages alarms and runs the stopwatch, timer and world clock.
package main

import "github.com/oshokin/alarm-clock/cmd/alarm-clock/cmd"

func main() {
	cmd.Execute()
}
