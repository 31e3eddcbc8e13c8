package model

// Cube returns the vertices and triangle indices of a unit cube centered on the origin.
func Cube() ([]Position, []uint32) {
	vertices := []Position{
		{-0.5, -0.5, -0.5},
		{0.5, -0.5, -0.5},
		{0.5, -0.5, 0.5},
		{-0.5, -0.5, 0.5},
		{-0.5, 0.5, -0.5},
		{0.5, 0.5, -0.5},
		{0.5, 0.5, 0.5},
		{-0.5, 0.5, 0.5},
	}
	indices := []uint32{
		0, 1, 2, 0, 2, 3, // bottom
		4, 6, 5, 4, 7, 6, // top
		0, 5, 1, 0, 4, 5, // front
		3, 2, 6, 3, 6, 7, // back
		3, 4, 0, 3, 7, 4, // left
		1, 6, 2, 1, 5, 6, // right
	}
	return vertices, indices
}
