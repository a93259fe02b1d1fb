// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package scene implements the retained scene graph rendered by the
// offscreen pipeline.
//
// A scene is described by a YAML (or JSON) document:
//
//	version: "1.0"
//	background: white
//	nodes:
//	  - type: rect
//	    x: 10
//	    y: 10
//	    width: 200
//	    height: 100
//	    radius: 8
//	    fill: "#3366ff"
//	  - type: text
//	    x: 20
//	    y: 30
//	    text: Hello
//	    size: 24
//
// When width and height are omitted the scene takes the size of its
// content's bounding box; an empty scene is 800x600.
//
// Rendering is two passes: Layout computes the natural size, then Paint
// rasterizes every node into a transparent layer. Every mutation made
// through the Scene API reports a change to the listener set with OnChange.
package scene
