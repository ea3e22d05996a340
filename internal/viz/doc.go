// Package viz draws bodies and octrees in the terminal and as SVG.
//
//   - [LiveModel]: Bubble Tea model that steps a simulation on every tick
//   - [Canvas]: Braille pixel canvas, 2x4 dots per character cell
//   - [Camera]: rotating perspective projection of the world cube
//   - [TreeSVG]: static SVG of a tree projected onto an axis plane
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	R     - Reset to the initial bodies
//	C     - Toggle cell outlines
//	[ ]   - Fewer/more outlined levels
//	X/Y/Z - Rotate (shift reverses)
//	+/-   - Zoom
//	Q     - Quit
package viz
