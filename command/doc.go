// Package command implements the video chat commands typed into a friend's
// chat window:
//
//	video-start                  start sending video in the current call
//	video-end                    stop video
//	video-list {in|out}          list capture or render devices
//	video-select {in|out} <id>   make a device primary and switch the call to it
//	video-query {in|out} <id>    show a device and whether it is selected
//
// A Dispatcher validates each command against the Window it was typed into
// and the state of the Session before anything is changed. Every rejection is
// a single line of output.
package command
