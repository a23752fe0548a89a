/*
Package selection implements the photo selection state machine used while a
user picks photos for a diary entry.

The state keeps selection membership keyed by photo id, so replacing the
photo list with a reordered one (SetPhotosPreservingSelection) keeps every
selected photo that is still present. An id to index map is rebuilt once
per list replacement.

After every call the following hold:

  - at most MaxSelection photos are selected (3 by default)
  - with date restriction on, all selected photos share the lock day
  - a photo in the used set is never newly selected
  - an empty selection has no lock day

Marking a photo as used after it was selected does not deselect it; the
used set only gates new selections.

Gate rejections are not errors. Toggle reports whether anything changed and
Check returns the Reason a tap would be ignored, which the UI uses to pick
an explanation.

State is not safe for concurrent use. It is owned by the loop of the
gallery session that created it.
*/
package selection
