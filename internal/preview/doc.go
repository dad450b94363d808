// Package preview renders surveyed LAS points: a top-down PNG scatter
// coloured by elevation (gonum/plot) and an HTML page with elevation and
// classification charts (go-echarts).
package preview
